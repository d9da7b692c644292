package queue

// SentinelLiteral is the wire payload of the end-of-stream item. A real path
// with these exact bytes is never sent as a path.
const SentinelLiteral = `\_magic_string_\`

// Kind tags the payload of an Item.
type Kind int

const (
	// KindPath carries a filesystem path.
	KindPath Kind = iota
	// KindEndOfStream marks the last item of a run.
	KindEndOfStream
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindEndOfStream:
		return "end_of_stream"
	default:
		return "unknown"
	}
}

// Item is a single message on the queue.
type Item struct {
	Kind Kind
	Path string
}

// PathItem returns an item carrying path.
func PathItem(path string) Item {
	return Item{Kind: KindPath, Path: path}
}

// EndOfStream returns the end-of-stream item.
func EndOfStream() Item {
	return Item{Kind: KindEndOfStream}
}

// IsEndOfStream reports whether the item terminates the stream.
func (i Item) IsEndOfStream() bool {
	return i.Kind == KindEndOfStream
}

// Payload returns the bytes the item occupies on the wire.
func (i Item) Payload() string {
	if i.IsEndOfStream() {
		return SentinelLiteral
	}
	return i.Path
}

// Size returns the wire size of the item including its terminator.
func (i Item) Size() int {
	return len(i.Payload()) + 1
}
