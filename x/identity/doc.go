/*
Package identity implements on-chain identities with purpose tagged keys and
a multi signature execution engine.

Every identity owns an address derived from its ID. Keys registered on the
identity carry one or more purposes. Holders of the EXECUTION purpose submit
requests to call or pay external targets, holders of the MANAGEMENT purpose
submit requests that modify the identity itself. A request is executed once
the configured number of distinct keys approved it. Execution of a request
that targets an identity dispatches the payload as a message, authenticated
as the executing identity.
*/
package identity
