package pages

// History records visited pages for back/forward navigation. It is unrelated
// to the undo stack.
type History struct {
	visited []int
	redo    []int
}

// NewHistory starts a history at page start
func NewHistory(start int) *History {
	return &History{visited: []int{start}}
}

// Current returns the page at the head of the history
func (h *History) Current() int {
	return h.visited[len(h.visited)-1]
}

// Navigate records a visit. Revisiting the current page is ignored; any other
// visit clears the forward branch.
func (h *History) Navigate(page int) bool {
	if page == h.Current() {
		return false
	}
	h.visited = append(h.visited, page)
	h.redo = h.redo[:0]
	return true
}

// Back steps to the previously visited page
func (h *History) Back() (int, bool) {
	if len(h.visited) <= 1 {
		return h.Current(), false
	}
	last := h.visited[len(h.visited)-1]
	h.visited = h.visited[:len(h.visited)-1]
	h.redo = append([]int{last}, h.redo...)
	return h.Current(), true
}

// Forward re-visits the most recently backed-out page
func (h *History) Forward() (int, bool) {
	if len(h.redo) == 0 {
		return h.Current(), false
	}
	next := h.redo[0]
	h.redo = h.redo[1:]
	h.visited = append(h.visited, next)
	return next, true
}

// CanBack reports whether Back would move
func (h *History) CanBack() bool {
	return len(h.visited) > 1
}

// CanForward reports whether Forward would move
func (h *History) CanForward() bool {
	return len(h.redo) > 0
}

// Reset drops all history and starts again at page start
func (h *History) Reset(start int) {
	h.visited = []int{start}
	h.redo = nil
}
