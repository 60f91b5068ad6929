package meetings

// NextID returns the id for a meeting appended to existing: len(existing)+1.
// Ids freed by deletion are not tracked, so a later add can repeat an id that is still in use.
func NextID(existing []Meeting) int {
	return len(existing) + 1
}

// IndexOf returns the position of the first meeting with id, or -1.
func IndexOf(ms []Meeting, id int) int {
	for i := range ms {
		if ms[i].ID == id {
			return i
		}
	}
	return -1
}

// FindByID returns the first meeting with id.
func FindByID(ms []Meeting, id int) (Meeting, bool) {
	if i := IndexOf(ms, id); i >= 0 {
		return ms[i], true
	}
	return Meeting{}, false
}

// RemoveByID returns a new slice without any meeting carrying id, and the first removed meeting.
func RemoveByID(ms []Meeting, id int) ([]Meeting, Meeting, bool) {
	var (
		removed Meeting
		found   bool
	)
	out := make([]Meeting, 0, len(ms))
	for _, m := range ms {
		if m.ID == id {
			if !found {
				removed, found = m, true
			}
			continue
		}
		out = append(out, m)
	}
	return out, removed, found
}

// ReplaceAt returns a copy of ms with the element at index replaced.
func ReplaceAt(ms []Meeting, index int, m Meeting) []Meeting {
	out := make([]Meeting, len(ms))
	copy(out, ms)
	if index >= 0 && index < len(out) {
		out[index] = m
	}
	return out
}
