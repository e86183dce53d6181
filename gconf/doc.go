/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension owns a single configuration entity stored under the
"_c:<package name>" key. The configuration is loaded from the genesis file
and can later be changed with an update message signed by its owner.

Not being able to get a configuration value is a critical condition for the
application and there is no recovery path for the client. Helpers that must
succeed panic instead of returning an error.
*/
package gconf
