/*
Package errors implements the error model used across the identity
application.

Root errors are declared with Register(code, description) and every runtime
error should wrap one of them with Wrap, Wrapf or Field. The ABCI code of the
root error is returned to the client, so the type of failure is preserved
while the description adds context.

Only the first Wrap call attaches a stack trace. Use fmt formatting to see it:
	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
