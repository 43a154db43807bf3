package waste

import "time"

type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Hint  string `json:"hint"`
	Color string `json:"color"`
}

// The category set is fixed and ordered; raw model output indexes fold onto
// it by position.
var categories = []Category{
	{ID: "biodegradable", Label: "Biodegradable", Hint: "Compost or green-waste bin", Color: "#4caf50"},
	{ID: "non-biodegradable", Label: "Non-Biodegradable", Hint: "General waste bin", Color: "#f44336"},
	{ID: "recycled", Label: "Recycled", Hint: "Recycling bin", Color: "#2196f3"},
}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func Count() int {
	return len(categories)
}

// Map resolves a raw model output index to a category. Models trained with
// more output classes than there are categories wrap around rather than
// truncate: index Count() maps like 0, Count()+1 like 1, and so on.
func Map(index int) Category {
	if index < 0 {
		index = 0
	}
	return categories[index%len(categories)]
}

type Result struct {
	Index      int           `json:"index"`
	RawLabel   string        `json:"raw_label,omitempty"`
	Category   Category      `json:"category"`
	Confidence float32       `json:"confidence"`
	Elapsed    time.Duration `json:"elapsed"`
}
