// Package installer writes package binaries to, and removes them from, the
// managed executable directory (bdsh/exec by default).
//
// Install and remove are best-effort transactions over independent packages.
// Each package prints a progress line to [Options.Out]; a failure is
// reported on a tab-indented line and processing continues with the next
// package. Nothing is rolled back, and an interrupted run leaves whatever it
// already wrote.
//
//	in := installer.New(client, installer.Options{Out: os.Stdout})
//	rep, err := in.Install(ctx, cat.Packages())
//	if err == nil && rep.Failed() > 0 {
//	    // some packages could not be installed
//	}
package installer
