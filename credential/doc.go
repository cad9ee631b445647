// Package credential defines the validated value objects that enter the
// authentication flows: [Email], [Password], [LoginAttemptID] and
// [TwoFACode].
//
// Raw strings become domain values only through the Parse functions, so a
// value of one of these types is always well formed. All types are
// immutable and comparable with ==.
package credential
