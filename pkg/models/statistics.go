package models

// Statistics summarizes the vocabulary book.
// The three counts are read separately and may disagree by one record
// while another writer is active.
type Statistics struct {
	Total    int `json:"total" db:"total"`
	Due      int `json:"due" db:"due"`
	Mastered int `json:"mastered" db:"mastered"`
}
