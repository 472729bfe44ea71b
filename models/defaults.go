package models

// DefaultPodcasts returns the records inserted when the collection is first observed empty.
func DefaultPodcasts() []Podcast {
	return []Podcast{
		{
			ID:           "1",
			Title:        "Tech Talk with AI Sarah",
			Description:  "Dive deep into the latest technology trends, startups, and innovation with Sarah, an AI expert who's been following the tech scene for years.",
			Host:         "AI Sarah",
			Category:     "Technology",
			Participants: 1247,
			Likes:        324,
			Comments:     89,
			Image:        PlaceholderImage,
			Poster:       Poster{Name: "Alex Chen", Avatar: AvatarURL("alex")},
			Tags:         []string{"AI", "Startups", "Innovation"},
		},
		{
			ID:           "2",
			Title:        "The Philosophy Corner",
			Description:  "Explore life's biggest questions with Marcus, an AI philosopher who loves debating ethics, consciousness, and the meaning of existence.",
			Host:         "AI Marcus",
			Category:     "Philosophy",
			Participants: 892,
			Likes:        198,
			Comments:     156,
			Image:        PlaceholderImage,
			Poster:       Poster{Name: "Maya Rodriguez", Avatar: AvatarURL("maya")},
			Tags:         []string{"Ethics", "Consciousness", "Debate"},
		},
		{
			ID:           "3",
			Title:        "Creative Writing Workshop",
			Description:  "Join Luna for interactive storytelling sessions where you collaborate to create amazing stories, poems, and creative pieces.",
			Host:         "AI Luna",
			Category:     "Arts & Creativity",
			Participants: 643,
			Likes:        445,
			Comments:     73,
			Image:        PlaceholderImage,
			Poster:       Poster{Name: "Jordan Kim", Avatar: AvatarURL("jordan")},
			Tags:         []string{"Storytelling", "Poetry", "Writing"},
		},
		{
			ID:           "4",
			Title:        "Business Strategy Sessions",
			Description:  "Get insights on entrepreneurship, business strategy, and market analysis from Alex, an AI with extensive business knowledge.",
			Host:         "AI Alex",
			Category:     "Business",
			Participants: 1089,
			Likes:        267,
			Comments:     124,
			Image:        PlaceholderImage,
			Poster:       Poster{Name: "Sam Taylor", Avatar: AvatarURL("sam")},
			Tags:         []string{"Entrepreneurship", "Strategy", "Markets"},
		},
		{
			ID:           "5",
			Title:        "Science Discoveries",
			Description:  "Explore the latest scientific breakthroughs, space exploration, and fascinating discoveries with Dr. Nova, your AI science guide.",
			Host:         "AI Dr. Nova",
			Category:     "Science",
			Participants: 756,
			Likes:        512,
			Comments:     98,
			Image:        PlaceholderImage,
			Poster:       Poster{Name: "Dr. Riley Park", Avatar: AvatarURL("riley")},
			Tags:         []string{"Space", "Research", "Discoveries"},
		},
		{
			ID:           "6",
			Title:        "Mental Wellness Chat",
			Description:  "A supportive space to discuss mental health, mindfulness, and personal growth with Zen, a compassionate AI counselor.",
			Host:         "AI Zen",
			Category:     "Health & Wellness",
			Participants: 934,
			Likes:        389,
			Comments:     167,
			Image:        PlaceholderImage,
			Poster:       Poster{Name: "Casey Morgan", Avatar: AvatarURL("casey")},
			Tags:         []string{"Mindfulness", "Mental Health", "Growth"},
		},
	}
}

// KnownCategories lists the categories the feed groups podcasts by.
var KnownCategories = []string{
	"Technology",
	"Philosophy",
	"Arts & Creativity",
	"Business",
	"Science",
	"Health & Wellness",
	DefaultCategory,
}
