// Package dirty tracks which byte ranges of an arena the allocator has written
// so a file-backed arena can flush only the pages it touched.
//
// # Overview
//
// The allocator reports every tag write and every heap extension through the
// DirtyTracker interface. Tracker records those ranges cheaply (an append)
// and does the expensive work (page alignment, sorting, merging) only when
// ranges are requested or flushed:
//
//	Dirty pages: [0, 1, 2, 5, 6] → Ranges: [0x0-0x3000, 0x5000-0x7000]
//
// # Usage
//
//	fa, _ := arena.CreateFile(path, 0)
//	dt := dirty.NewTracker(fa)
//	a, _ := alloc.New(fa, dt, nil)
//	p, _ := a.Alloc(128)
//	...
//	err := dt.Sync(ctx, dirty.FlushAuto)
//
// # Thread Safety
//
// Tracker instances are not thread-safe, matching the allocator that feeds them.
package dirty
