/*
Package batch implements batch transactions.

A batch message holds a list of messages that the application can process,
for example an execution request submission followed by its approvals. The
transaction fails if any of the messages fail to be processed. Signatures
and other middleware that do not rely on the message are applied once per
transaction.
*/
package batch
