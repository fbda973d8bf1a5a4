package main

import (
	"log"
	"time"

	"ai-studyquiz-be/internal/entity"
	"ai-studyquiz-be/internal/mapper"
	"ai-studyquiz-be/internal/model"
	"ai-studyquiz-be/pkg/study/quiz"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const photosynthesisNotes = `Photosynthesis takes place in the chloroplasts of plant cells.
The light-dependent reactions happen in the thylakoid membranes and produce ATP and NADPH.
The Calvin cycle runs in the stroma and uses ATP and NADPH to fix carbon dioxide into glucose.
Chlorophyll absorbs mostly red and blue light and reflects green light.`

const photosynthesisCondensed = `Photosynthesis happens in chloroplasts. Light reactions in the thylakoids make ATP and NADPH; the Calvin cycle in the stroma uses them to turn CO2 into glucose.`

const revolutionNotes = `The French Revolution began in 1789 with the storming of the Bastille.`

// SeedDocuments upserts two documents: one condensed with a ready quiz, one
// too short to condense.
func SeedDocuments(db *gorm.DB, userId uuid.UUID) {
	now := time.Now()
	condensed := photosynthesisCondensed

	questions := []quiz.Question{
		{
			Type:          quiz.KindMCQ,
			Question:      "Where does the Calvin cycle take place?",
			Options:       []string{"Thylakoid membrane", "Stroma", "Nucleus", "Mitochondria"},
			CorrectAnswer: "Stroma",
			Explanation:   "The Calvin cycle runs in the stroma of the chloroplast.",
		},
		{
			Type:          quiz.KindMCQ,
			Question:      "Which molecules do the light-dependent reactions produce?",
			Options:       []string{"Glucose and oxygen", "ATP and NADPH", "DNA and RNA", "Carbon dioxide and water"},
			CorrectAnswer: "ATP and NADPH",
		},
	}

	documents := []model.Document{
		{
			Id:                   seedID(userId, "photosynthesis"),
			UserId:               userId,
			Title:                "Photosynthesis",
			SourceText:           photosynthesisNotes,
			CondensedText:        &condensed,
			CondensationStatus:   string(entity.CondensationReady),
			CondensationStrategy: "unguided",
			CondensationAttempts: 1,
			CondensedAt:          &now,
			Questions:            mapper.QuestionsJSON(questions),
			QuestionType:         string(quiz.RequestMCQ),
			QuestionsGeneratedAt: &now,
		},
		{
			Id:                 seedID(userId, "french-revolution"),
			UserId:             userId,
			Title:              "French Revolution",
			SourceText:         revolutionNotes,
			CondensationStatus: string(entity.CondensationSkipped),
			Questions:          mapper.QuestionsJSON(nil),
		},
	}

	for _, doc := range documents {
		err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&doc).Error
		if err != nil {
			log.Printf("Error seeding document %s: %v", doc.Title, err)
			continue
		}
		log.Printf("Seeded document: %s (%s)", doc.Title, doc.Id)
	}
}

// seedID keeps ids stable across runs so reseeding updates in place.
func seedID(userId uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(userId, []byte(name))
}
