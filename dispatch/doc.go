// Package dispatch decodes inbound change notifications and drives the
// pipeline: one document queue per message, one fetch+build pass per
// record.
//
// Failures below the message level are absorbed and logged so a single bad
// record cannot poison its batch; only an undecodable message body
// propagates, which makes the hosting infrastructure redeliver the message
// instead of silently dropping it.
package dispatch
