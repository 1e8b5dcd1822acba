// Command vidmill is the operator CLI for the conversion daemon: it runs
// the daemon in the foreground, triggers one-shot scan passes, and reports
// conversion status, output listings, and history.
package main
