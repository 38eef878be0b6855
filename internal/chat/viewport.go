package chat

// Anchor pins a message to a position in the viewport. Offset is the
// number of rows from the viewport's top edge to the message's top edge;
// it is negative when the message is partially scrolled out.
type Anchor struct {
	MessageID string
	Offset    int
}

// Viewport is the scrollable surface the controller keeps consistent with
// its window. The controller only issues layout and scroll corrections;
// rendering is entirely up to the implementation.
type Viewport interface {
	// NearTop reports whether the top of the content is within the
	// implementation's proximity threshold.
	NearTop() bool
	// NearBottom reports whether the user is following the newest message.
	NearBottom() bool
	// ScrollTo sets the scroll offset in rows from the top of the content.
	ScrollTo(offset int)
	ScrollToBottom()
	// MeasureTopAnchor returns the topmost visible message, if any.
	MeasureTopAnchor() (Anchor, bool)
	// Layout re-renders the given messages. Offsets reported afterwards
	// by MessageOffset reflect this layout.
	Layout(msgs []Message)
	// MessageOffset returns the row at which the message's top edge sits
	// in the current layout.
	MessageOffset(id string) (int, bool)
}
