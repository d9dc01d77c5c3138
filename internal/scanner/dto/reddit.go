package dto

// RedditPost is a raw search result candidate before scoring.
type RedditPost struct {
	RedditID     string  `json:"reddit_id"`
	Subreddit    string  `json:"subreddit"`
	PostType     string  `json:"post_type"`
	Title        string  `json:"title"`
	Body         string  `json:"body"`
	Author       string  `json:"author"`
	Permalink    string  `json:"permalink"`
	URL          string  `json:"url,omitempty"`
	Upvotes      int     `json:"upvotes"`
	CommentCount int     `json:"comment_count"`
	PostAgeHours float64 `json:"post_age_hours"`
	NSFW         bool    `json:"nsfw"`
	Locked       bool    `json:"locked"`
	IsSelf       bool    `json:"is_self"`
}

// RedditListing mirrors the relevant parts of Reddit's public JSON listing
// response (https://www.reddit.com/r/<sub>/search.json).
type RedditListing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data RedditChildData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditChildData is one listing entry.
type RedditChildData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Over18      bool    `json:"over_18"`
	Locked      bool    `json:"locked"`
	Archived    bool    `json:"archived"`
	IsSelf      bool    `json:"is_self"`
}
