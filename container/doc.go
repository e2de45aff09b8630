// Package container stores encoded columns in a single self-describing file.
//
// A container is the collaborator that owns buffers: the encoding package
// only names buffers by scope and index, and this package decides where the
// bytes live, resolves references on read and supplies the row and item
// counts each page needs to decode.
//
// # Writing
//
//	w, err := container.NewWriter(container.WithCompression(format.CompressionZstd))
//	if err != nil {
//		return err
//	}
//	if err := w.WritePage("scores", scores); err != nil {
//		return err
//	}
//	file, err := w.Bytes()
//
// List items and struct fields are written as child columns named
// "<column>/<index>". Every page of a column has a matching page in each of
// its child columns.
//
// # Reading
//
//	r, err := container.Open(file)
//	if err != nil {
//		return err
//	}
//	pages, err := r.DecodeColumn(ctx, "scores")
//
// Each stored buffer carries an xxHash64 checksum of its stored bytes and is
// compressed independently with the codec recorded in the footer.
package container
