/*
Package cash keeps the coin balances of all accounts.

There is no logic in the coins, except that the balance of any coin may not
go below zero. An identity account is funded like any other address and the
identity execution engine moves value out of it through the CoinMover
interface when an approved request is executed.
*/
package cash
