package domain

import "time"

// Question is a post on the board. ModifyDate is nil until the owner
// edits it at least once. ImagePath is the storage-relative path of an
// optional attachment, empty when none was uploaded.
type Question struct {
	ID         int64
	Subject    string
	Content    string
	CreateDate time.Time
	ModifyDate *time.Time
	ImagePath  string
	UserID     int64
	Username   string
	Answers    []Answer
}

// Answer is a reply to a question. Answers are removed together with
// their question.
type Answer struct {
	ID         int64
	QuestionID int64
	UserID     int64
	Username   string
	Content    string
	CreateDate time.Time
	ModifyDate *time.Time
}
