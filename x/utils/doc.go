/*
Package utils contains decorators shared by every application built on
this framework: panic recovery, logging, savepoints and action tagging.
*/
package utils
