/*
Package wallet is the ledger service: the only component permitted to mutate
a wallet balance.

Balances are kept per (user, currency) and derived from an append-only
transaction ledger; at any instant a balance equals the signed sum of its
completed ledger entries. Debit and credit are atomic: the sufficiency check,
the balance write and the ledger append happen inside one database
transaction holding a row-level lock on the wallet, so concurrent operations
on the same key serialize while different keys proceed independently.

Serialization conflicts are retried a bounded number of times with backoff
before surfacing as a conflict error.

All arithmetic uses decimal.Decimal; amounts are exact to 2 decimal places.

Usage:

	svc := wallet.NewService(repo, cache, wallet.Config{}, metrics)

	bal, err := svc.GetBalance(ctx, userID, "USD")

	entry, err := svc.Debit(ctx, userID, "USD", amount, wallet.Reference{
	    ID:   paymentID,
	    Type: models.ReferenceTypePayment,
	})
*/
package wallet
