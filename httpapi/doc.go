// Package httpapi exposes the authentication Engine over JSON/HTTP.
//
// Routes:
//
//	POST /signup        {"email","password","requires2FA"}      201
//	POST /login         {"email","password"}                    200 + jwt cookie, or 206 + loginAttemptId
//	POST /verify-2fa    {"email","loginAttemptId","2FACode"}    200 + jwt cookie
//	POST /logout        jwt cookie or Bearer header             200, cookie cleared
//	POST /verify-token  {"token"}                               200
//
// Errors are returned as {"error": "..."} with a status chosen by the
// engine sentinel (see statusFor).
package httpapi
