package model

// HadithRecord is one narration as stored in the data files and the document store.
type HadithRecord struct {
	ID           string `json:"id"`
	Collection   string `json:"collection"     validate:"required"`
	BookNumber   int    `json:"book_number"    validate:"required,min=1"`
	HadithNumber int    `json:"hadith_number"  validate:"required,min=1"`
	ArabicText   string `json:"text_arabic"    validate:"required_without=EnglishText"`
	EnglishText  string `json:"translation_en" validate:"required_without=ArabicText"`
	Narrator     string `json:"narrator"`
	Category     string `json:"category"`
	Grade        string `json:"grade"`
}

// Book describes a hadith collection in the catalogue.
type Book struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Collection   string `json:"collection"`
	Arabic       string `json:"arabic"`
	Author       string `json:"author"`
	TotalHadiths int    `json:"total_hadiths"`
}
