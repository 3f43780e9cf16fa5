// Package common contains the configuration structs, logger setup and the
// process-wide shutdown state shared by the benchmark server and client.
package common
