/*
Package optpath configures the signal path of modular microscopes.

An instrument is a set of components (selectors, filter wheels, slits,
spectrographs, lens switches) linked by an "affects" relation that leads to
the detectors. Each acquisition mode names a detector and the positions its
components must take. The Manager moves the components into those positions
and keeps the memory needed to undo temporary changes, such as the slit
opening used during alignment or the grating replaced by the mirror.

# Concept

Path changes are queued on a single worker. Only the most recent queued change
is kept: a change submitted while another one is waiting replaces it, and the
replaced one resolves with domain.ErrSuperseded. A running change always
completes. Every call returns a future that the caller may wait on or cancel.

The mode table comes from the microscope family (SPARC, SPARC2 or SECOM). It
can be replaced or merged with override files, and modes whose detector is not
present are dropped.

# Usage

	inst, err := sim.LoadInstrument("sparc2.yaml")
	if err != nil {
		log.Fatal(err)
	}

	mgr, err := optpath.New(inst.Components,
		optpath.WithStore(memory.NewStore()),
		optpath.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := mgr.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer mgr.Close()

	if err := mgr.ApplyMode("spectral", nil).Wait(ctx); err != nil {
		log.Printf("path change failed: %v", err)
	}
*/
package optpath
