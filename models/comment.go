package models

// Comment — комментарий, показанный (или ожидающий показа) под видео.
type Comment struct {
	ID     string `json:"id"`
	Author string `json:"user"`
	Avatar string `json:"avatar"`
	Text   string `json:"text"`
	Likes  int    `json:"likes"`
}

// CommentCandidate приходит от генеративного сервиса без id и аватара.
type CommentCandidate struct {
	Author   string `json:"user"`
	Text     string `json:"text"`
	LikeSeed int    `json:"likes"`
}
