package session

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// AddFlash appends a message to the session's queue.
func (s *Session) AddFlash(category, text string) error {
	queue, _, err := Get[[]Flash](s, KeyFlash)
	if err != nil {
		queue = nil
	}
	queue = append(queue, Flash{Category: category, Text: text})
	return s.Put(KeyFlash, queue)
}

// DrainFlash returns every queued message and clears the queue.
// An empty queue leaves the session untouched.
func (s *Session) DrainFlash() []Flash {
	if !s.Has(KeyFlash) {
		return nil
	}
	queue, _, _ := Get[[]Flash](s, KeyFlash)
	s.Remove(KeyFlash)
	return queue
}

// FlashesFor filters messages by category.
func FlashesFor(msgs []Flash, category string) []string {
	var out []string
	for _, m := range msgs {
		if m.Category == category {
			out = append(out, m.Text)
		}
	}
	return out
}
