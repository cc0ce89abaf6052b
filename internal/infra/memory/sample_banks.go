package memory

import "trivia-live-service/internal/domain"

// SampleBanks returns the built-in question banks keyed by category.
func SampleBanks() map[string][]domain.Question {
	return map[string][]domain.Question{
		"General": {
			mcq("General", "easy", "How many days are there in a leap year?", "C", "A leap year adds February 29th.", "364", "365", "366", "367"),
			mcq("General", "easy", "What colour do you get by mixing blue and yellow?", "B", "Blue and yellow pigments combine into green.", "Purple", "Green", "Orange", "Brown"),
			mcq("General", "medium", "Which planet is known as the Red Planet?", "A", "Iron oxide on its surface gives Mars its colour.", "Mars", "Venus", "Jupiter", "Mercury"),
			mcq("General", "medium", "How many sides does a hexagon have?", "D", "Hexa means six.", "Four", "Five", "Eight", "Six"),
			mcq("General", "medium", "What is the largest ocean on Earth?", "B", "The Pacific covers about a third of the planet.", "Atlantic", "Pacific", "Indian", "Arctic"),
			mcq("General", "medium", "Which instrument has 88 keys?", "C", "A standard piano has 52 white and 36 black keys.", "Organ", "Harp", "Piano", "Accordion"),
			mcq("General", "hard", "What is the smallest prime number?", "A", "2 is the only even prime.", "2", "1", "3", "0"),
			mcq("General", "hard", "In which year did the first person walk on the Moon?", "D", "Apollo 11 landed in July 1969.", "1965", "1972", "1959", "1969"),
		},
		"Science": {
			mcq("Science", "easy", "What gas do plants absorb from the air?", "B", "Photosynthesis consumes carbon dioxide.", "Oxygen", "Carbon dioxide", "Nitrogen", "Helium"),
			mcq("Science", "medium", "What is the chemical symbol for gold?", "C", "Au comes from the Latin aurum.", "Go", "Gd", "Au", "Ag"),
			mcq("Science", "medium", "How many bones are in the adult human body?", "A", "Several bones fuse during childhood.", "206", "180", "212", "250"),
			mcq("Science", "medium", "What is the speed of light in vacuum, approximately?", "D", "Roughly 299,792 km per second.", "150,000 km/s", "1,000 km/s", "30,000 km/s", "300,000 km/s"),
			mcq("Science", "hard", "Which particle has no electric charge?", "B", "Neutrons are neutral.", "Proton", "Neutron", "Electron", "Positron"),
		},
		"History": {
			mcq("History", "easy", "Who was the first President of the United States?", "A", "George Washington took office in 1789.", "George Washington", "Abraham Lincoln", "Thomas Jefferson", "John Adams"),
			mcq("History", "medium", "In which year did World War II end?", "C", "The war ended in 1945.", "1939", "1944", "1945", "1950"),
			mcq("History", "medium", "Which ancient civilisation built Machu Picchu?", "B", "It was built by the Inca in the 15th century.", "Aztec", "Inca", "Maya", "Olmec"),
			mcq("History", "medium", "The Berlin Wall fell in which year?", "D", "It fell on 9 November 1989.", "1961", "1975", "1991", "1989"),
			mcq("History", "hard", "Who was the first emperor of Rome?", "A", "Augustus became emperor in 27 BC.", "Augustus", "Julius Caesar", "Nero", "Caligula"),
		},
		"Geography": {
			mcq("Geography", "easy", "What is the capital of Japan?", "C", "Tokyo has been the capital since 1868.", "Osaka", "Kyoto", "Tokyo", "Nagoya"),
			mcq("Geography", "medium", "Which is the longest river in Africa?", "A", "The Nile runs about 6,650 km.", "Nile", "Congo", "Niger", "Zambezi"),
			mcq("Geography", "medium", "Which country has the most islands?", "D", "Sweden has over 200,000 islands.", "Indonesia", "Philippines", "Canada", "Sweden"),
			mcq("Geography", "medium", "What is the highest mountain in the world?", "B", "Everest rises 8,849 m above sea level.", "K2", "Mount Everest", "Kangchenjunga", "Lhotse"),
			mcq("Geography", "hard", "What is the capital of Australia?", "C", "Canberra was purpose-built as the capital.", "Sydney", "Melbourne", "Canberra", "Perth"),
		},
		"Sports": {
			mcq("Sports", "easy", "How many players does a football team have on the field?", "B", "Eleven per side, including the goalkeeper.", "10", "11", "9", "12"),
			mcq("Sports", "medium", "In which sport is the term 'love' used for zero?", "A", "Tennis scoring uses love for zero.", "Tennis", "Golf", "Cricket", "Badminton"),
			mcq("Sports", "medium", "How often are the Summer Olympic Games held?", "C", "Every four years.", "Every two years", "Every three years", "Every four years", "Every five years"),
			mcq("Sports", "medium", "What is the maximum break in snooker?", "D", "A maximum break scores 147 points.", "100", "155", "140", "147"),
			mcq("Sports", "hard", "Which country won the first FIFA World Cup in 1930?", "B", "Uruguay hosted and won the first World Cup.", "Brazil", "Uruguay", "Argentina", "Italy"),
		},
		"Entertainment": {
			mcq("Entertainment", "easy", "Which film features a clownfish named Nemo?", "A", "Finding Nemo was released in 2003.", "Finding Nemo", "Shark Tale", "Moana", "Luca"),
			mcq("Entertainment", "medium", "Who wrote the play Romeo and Juliet?", "C", "Shakespeare wrote it in the 1590s.", "Charles Dickens", "Jane Austen", "William Shakespeare", "Mark Twain"),
			mcq("Entertainment", "medium", "Which band released the album Abbey Road?", "B", "The Beatles released it in 1969.", "The Rolling Stones", "The Beatles", "Queen", "Pink Floyd"),
			mcq("Entertainment", "medium", "What is the name of the wizarding school in Harry Potter?", "D", "Hogwarts School of Witchcraft and Wizardry.", "Durmstrang", "Beauxbatons", "Ilvermorny", "Hogwarts"),
			mcq("Entertainment", "hard", "Which film won the first Academy Award for Best Picture?", "A", "Wings won at the 1929 ceremony.", "Wings", "Sunrise", "Metropolis", "The Jazz Singer"),
		},
		"Technology": {
			mcq("Technology", "easy", "What does CPU stand for?", "B", "The central processing unit executes instructions.", "Computer Power Unit", "Central Processing Unit", "Core Program Utility", "Central Peripheral Unit"),
			mcq("Technology", "medium", "Which company created the Go programming language?", "C", "Go was designed at Google and released in 2009.", "Microsoft", "Apple", "Google", "Mozilla"),
			mcq("Technology", "medium", "What does HTTP stand for?", "A", "HyperText Transfer Protocol.", "HyperText Transfer Protocol", "High Transfer Text Protocol", "Hyperlink Text Transport Process", "Host Transfer Type Protocol"),
			mcq("Technology", "medium", "How many bits are in a byte?", "D", "A byte is eight bits.", "4", "16", "2", "8"),
			mcq("Technology", "hard", "Which port does HTTPS use by default?", "B", "HTTPS listens on 443.", "80", "443", "8080", "22"),
		},
	}
}

func mcq(category, difficulty, text, correct, explanation string, a, b, c, d string) domain.Question {
	return domain.Question{
		Text: text,
		Options: []domain.Option{
			{Label: "A", Text: a},
			{Label: "B", Text: b},
			{Label: "C", Text: c},
			{Label: "D", Text: d},
		},
		CorrectAnswer: correct,
		Explanation:   explanation,
		Category:      category,
		Difficulty:    difficulty,
	}
}
