package hadith

import "github.com/Nixie-Tech-LLC/salah/internal/model"

// Books is the catalogue of the six major collections.
var Books = []model.Book{
	{ID: "sahih-bukhari", Name: "Sahih Bukhari", Collection: "Sahih al-Bukhari", Arabic: "صحيح البخاري", Author: "Imam Muhammad ibn Ismail al-Bukhari", TotalHadiths: 7563},
	{ID: "sahih-muslim", Name: "Sahih Muslim", Collection: "Sahih Muslim", Arabic: "صحيح مسلم", Author: "Imam Muslim ibn al-Hajjaj", TotalHadiths: 7563},
	{ID: "sunan-abu-dawud", Name: "Sunan Abu Dawud", Collection: "Sunan Abu Dawud", Arabic: "سنن أبي داود", Author: "Imam Abu Dawud", TotalHadiths: 5274},
	{ID: "sunan-tirmidhi", Name: "Sunan Tirmidhi", Collection: "Sunan Tirmidhi", Arabic: "سنن الترمذي", Author: "Imam Abu Isa Muhammad at-Tirmidhi", TotalHadiths: 3956},
	{ID: "sunan-nasai", Name: "Sunan An-Nasai", Collection: "Sunan An-Nasai", Arabic: "سنن النسائي", Author: "Imam Ahmad ibn Shuayb an-Nasai", TotalHadiths: 5662},
	{ID: "sunan-ibn-majah", Name: "Sunan Ibn Majah", Collection: "Sunan Ibn Majah", Arabic: "سنن ابن ماجه", Author: "Imam Muhammad ibn Yazid ibn Majah", TotalHadiths: 4341},
}

// collectionFor maps a book id to its collection name. Unknown values are
// taken to be collection names already.
func collectionFor(book string) string {
	for _, b := range Books {
		if b.ID == book {
			return b.Collection
		}
	}
	return book
}
