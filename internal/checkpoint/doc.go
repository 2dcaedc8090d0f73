// Package checkpoint stores named matrices together with training metadata.
//
// A checkpoint is a single binary stream:
//
//	Format Structure:
//	  [4 bytes: Magic "GNET"]
//	  [4 bytes: Version (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: protobuf wire message]
//	  [Tensor data: float64 LE, row-major, in header order]
//	  [32 bytes: SHA-256 of everything above]
//
// The header carries the creation time, epoch, loss, free-form string
// metadata and the tensor table (name, rows, cols). Unlike the raw stream
// written by Network.Save, a checkpoint is self-describing: shapes are
// checked on load and corruption is caught by the checksum.
//
// Example usage:
//
//	ck := checkpoint.New(epoch, loss)
//	ck.Add("layers.0.weight", w)
//	if err := checkpoint.SaveFile("model.gnet", ck); err != nil {
//	    log.Fatal(err)
//	}
//
//	ck, err := checkpoint.LoadFile("model.gnet")
//	w, ok := ck.Get("layers.0.weight")
package checkpoint
