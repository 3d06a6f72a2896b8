// Package container reads, writes and appends qcf files.
//
// A write session declares its fields, then fills and commits one event at
// a time:
//
//	s, err := container.Create("run.qcf")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	n, _ := s.AllocateField("nHits", format.KindUnsigned, 1, "")
//	t, _ := s.AllocateField("hitTime", format.KindFloat, 0.1, "nHits")
//
//	_ = n.AddUint(2)
//	_ = t.Add(12.3, 15.1)
//	if err := s.Write(); err != nil {
//	    return err
//	}
//
// A child field such as hitTime must receive exactly as many values as its
// parent's value in the same event; Write rejects the whole event otherwise.
//
// Committed events are buffered into blocks of DefaultBlockSize events and
// written as they fill. Close writes the final block, the trailer carrying
// the block index and comments, and the footer.
//
// A read session iterates events lazily, one block at a time:
//
//	s, _ := container.OpenRead("run.qcf")
//	defer s.Close()
//	for ev, err := range s.Events() {
//	    if err != nil {
//	        return err
//	    }
//	    times, _ := ev.Floats("hitTime")
//	    ...
//	}
//
// An append session reuses the field table stored in the file. Fields are
// re-declared with AllocateField, which must match the stored definitions,
// or fetched with Field.
package container
