// Package mail sends email. Usecases depend on the Mail interface; SMTP is
// the only transport shipped.
package mail
