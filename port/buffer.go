// File: buffer.go
// Role: buffer descriptors for aggregate ports and the SizeRequest
// mechanism for DataBuffer outputs.
package port

// BufferDescriptor locates one sub-buffer within an aggregate port's
// backing storage: Offset and ElementSize are in elements (not bytes),
// matching the render graph's typed allocation. Aggregate inputs must
// match, element type for element type, the layout of the output they
// consume (checked by the render graph via ElementType identity, not by
// this package).
type BufferDescriptor struct {
	Name       string
	Offset     int
	ElementLen int
}

// SizeRequest is a main-thread request to resize a DataBuffer output to
// length N elements. NodeSet.SizeRequest only records it as a resize
// event for the next tick's Diff; it does not reallocate the output's
// storage.
type SizeRequest struct {
	Port ID
	N    int
}
