package tiff

import "io"

// Document is an open multi-page TIFF stream: a header plus lazy access
// to the linked list of top-level IFDs it points into. Grounded on the
// teacher's GetIFDTree, generalized per §4.5 into a cursor-based reader
// that doesn't require materializing every frame up front, and with the
// teacher's "IFD reference loop detected" cycle guard preserved.
type Document struct {
	r      io.ReaderAt
	Header Header

	frame    int
	offset   uint64 // absolute offset of the current frame's IFD, 0 once exhausted
	visited  map[uint64]int
	nFrames  int // -1 until Count has been run
	looped   bool
}

// Open reads the header from r and positions the cursor at frame 0.
func Open(r io.ReaderAt) (*Document, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		r:       r,
		Header:  h,
		offset:  h.FirstIFD,
		visited: map[uint64]int{h.FirstIFD: 0},
		nFrames: -1,
	}, nil
}

// Frame reports the index of the frame the cursor currently sits on.
func (doc *Document) Frame() int { return doc.frame }

// More reports whether Seek(doc.Frame()) would succeed, i.e. the cursor
// hasn't run off the end (or into a cycle) of the next-pointer list.
func (doc *Document) More() bool {
	return doc.offset != 0
}

// Current loads and returns the IFD the cursor is on, without advancing.
func (doc *Document) Current() (*IFD, error) {
	if doc.offset == 0 {
		return nil, newProgrammerErrorf("no current frame: past end of document")
	}
	ifd, _, err := LoadIFD(doc.r, doc.offset, doc.Header.Order, doc.Header.Big, TIFFSpace)
	return ifd, err
}

// maxPlausibleOffset bounds a next_offset value per §4.5/§7: anything at
// or beyond 2^63 cannot address a real file and is rejected outright
// rather than followed (or cast into a negative seek).
const maxPlausibleOffset = uint64(1) << 63

// Next advances the cursor to the following frame and loads it. Per
// §4.5, a next-pointer that revisits an offset already seen in this
// walk terminates the list early (cycle protection) rather than
// looping forever. In that case, as at a genuine end of list, Next
// returns the frame it loaded with a nil error and More then reports
// false; calling Next again returns a ProgrammerError.
func (doc *Document) Next() (*IFD, error) {
	ifd, err := doc.Current()
	if err != nil {
		return nil, err
	}
	if err := doc.advance(ifd.NextOffset); err != nil {
		return nil, err
	}
	return ifd, nil
}

func (doc *Document) advance(next uint64) error {
	doc.frame++
	if next == 0 {
		doc.offset = 0
		return nil
	}
	if next >= maxPlausibleOffset {
		doc.offset = 0
		return newSyntaxErrorf("implausible next_offset %d", next)
	}
	if _, seen := doc.visited[next]; seen {
		doc.looped = true
		doc.offset = 0
		return nil
	}
	doc.visited[next] = doc.frame
	doc.offset = next
	return nil
}

// Seek repositions the cursor to the given frame index by walking the
// next-pointer chain from the start. Frame numbers are validated lazily:
// seeking past the end (or into the detected loop) returns an error
// rather than panicking.
func (doc *Document) Seek(frame int) error {
	if frame < 0 {
		return newProgrammerErrorf("negative frame index %d", frame)
	}
	doc.frame = 0
	doc.offset = doc.Header.FirstIFD
	doc.visited = map[uint64]int{doc.Header.FirstIFD: 0}
	doc.looped = false
	for doc.frame < frame {
		ifd, err := doc.Current()
		if err != nil {
			return err
		}
		if err := doc.advance(ifd.NextOffset); err != nil {
			return err
		}
		if doc.offset == 0 {
			return newProgrammerErrorf("frame %d does not exist", frame)
		}
	}
	return nil
}

// Count walks the entire list once (saving and restoring the cursor) to
// report the total number of frames; afterwards Looped reports whether
// that walk ended at a cycle. Per §4.5 this is O(frames), not
// O(1): callers that only need sequential access should prefer Next.
func (doc *Document) Count() (int, error) {
	if doc.nFrames >= 0 {
		return doc.nFrames, nil
	}
	savedFrame, savedOffset, savedVisited := doc.frame, doc.offset, doc.visited
	defer func() {
		doc.frame, doc.offset, doc.visited = savedFrame, savedOffset, savedVisited
	}()

	doc.frame = 0
	doc.offset = doc.Header.FirstIFD
	doc.visited = map[uint64]int{doc.Header.FirstIFD: 0}
	doc.looped = false
	n := 0
	for doc.offset != 0 {
		ifd, err := doc.Current()
		if err != nil {
			return 0, err
		}
		n++
		if err := doc.advance(ifd.NextOffset); err != nil {
			return 0, err
		}
	}
	doc.nFrames = n
	return n, nil
}

// Looped reports whether the most recent traversal (Next/Seek/Count)
// terminated because a next-pointer cycle was detected rather than a
// genuine zero terminator.
func (doc *Document) Looped() bool { return doc.looped }
