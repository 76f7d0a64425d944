/*
Package operation implements the nine document operations and the registry
that dispatches them.

	+-----------+      +------------+      +-------------+
	| Registry  | ---> |    Spec    | ---> | Capability  |
	| (lookup)  |      | (settings) |      |  (one run)  |
	+-----------+      +------------+      +------+------+
	                                              |
	                           +------------------+------------------+
	                           |                  |                  |
	                     pdf.Engine          pdf.Raster        atomicfile
	                    (structure)      (render / text)     (commit output)

🎯 Purpose:
- Resolve and validate per operation settings
- Run one operation against a selected input
- Report progress in [0, 100] through a progress.Sink
- Translate every failure into a user facing *Failure

🔄 Flow:
1. Registry.Run looks up the Spec and checks the backend it Needs
2. Spec.Resolve applies defaults and rejects bad values
3. The Capability checks ctx once per page and writes through atomicfile
4. Errors that are not already a *Failure become "<Label> failed: <cause>"

⚡ Cancellation:
A capability never looks at a flag. The caller cancels the context it passed
to Run and the next checkpoint returns Cancelled().

🔍 Example:

	reg := operation.NewDefaultRegistry(backends.Default(ctx))
	msg, err := reg.Run(ctx, operation.Rotate, operation.Request{
		Input:    "in.pdf",
		Target:   operation.Target{File: "in_rotate.pdf"},
		Settings: operation.Settings{operation.SettingAngle: 180},
	})
*/
package operation
