// Package payment implements the payment state machine: payments are
// created pending, dispatched to a per-method gateway strategy and moved
// to processing, awaiting_approval, completed or failed. Terminal payments
// never reopen; a retry is a new payment.
package payment
