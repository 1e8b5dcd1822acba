// Package preflight validates the environment before the daemon starts
// converting. Checks cover directory access, free space on the output
// volume, and the external binaries the engine shells out to.
package preflight
