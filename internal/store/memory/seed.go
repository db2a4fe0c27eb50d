package memory

import (
	"studyplanner-backend/internal/models"
	"time"
)

const calculusSchedule = `Great! Here is a personalized schedule for you:

**Weeks 1-2: Derivative Fundamentals (20h)**
- Limits and continuity (4h)
- Basic differentiation rules (6h)
- Chain rule and implicit derivatives (6h)
- Practice exercises (4h)

**Weeks 3-4: Applications of Derivatives (20h)**
- Maxima and minima (5h)
- Optimization problems (7h)
- Curve sketching (4h)
- Review and exercises (4h)

**Weeks 5-6: Integrals (20h)**
- Indefinite integrals (6h)
- Definite integrals (6h)
- Integration techniques (6h)
- Practice exercises (2h)

**Weeks 7-8: Applications and Review (20h)**
- Applications of integrals (6h)
- Fundamental Theorem of Calculus (4h)
- Mock exams and general review (10h)

**Tips:**
- Study 30 minutes every day instead of long, spaced-out sessions
- Solve exercises right after each theory topic
- Review earlier concepts before moving on`

// GeneralWelcome is the first message of the general thread.
const GeneralWelcome = "Hi! I'm your general assistant. I can see all of your study projects. How can I help today?"

// Seed replaces the store contents with the sample projects and the general
// welcome message. It is meant to run once, before the store is shared.
func (s *MemoryStore) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	msg := func(role models.Role, content string, ago time.Duration, pinned bool) models.Message {
		return models.Message{
			ID:        s.newID(),
			Role:      role,
			Content:   content,
			Timestamp: now.Add(-ago),
			IsPinned:  pinned,
		}
	}

	s.projects = []models.Project{
		{
			ID:           s.newID(),
			Name:         "Advanced Mathematics",
			Description:  "Differential and integral calculus for exams",
			Instructions: "Focus on practical exercises and applications. I need to master derivatives and integrals.",
			Files:        []string{"calculus_stewart.pdf", "solved_exercises.pdf"},
			Messages: []models.Message{
				msg(models.RoleAssistant, "Hi! I'm here to help with your Advanced Mathematics studies. I can build a study schedule based on the time you have. How much time do you have per week?", time.Hour, false),
				msg(models.RoleUser, "I have 10 hours per week for 8 weeks. I need to focus on derivatives and integrals.", 50*time.Minute, false),
				msg(models.RoleAssistant, calculusSchedule, 40*time.Minute, true),
			},
			CreatedAt: now.Add(-7 * 24 * time.Hour),
		},
		{
			ID:           s.newID(),
			Name:         "Python for Data Science",
			Description:  "Pandas, NumPy and data visualization",
			Instructions: "Learn the essential libraries for data analysis. I need hands-on projects.",
			Files:        []string{"python_datascience.pdf"},
			Messages: []models.Message{
				msg(models.RoleAssistant, "Hi! I'll help you master Python for Data Science. What is your current Python level?", 2*time.Hour, false),
			},
			CreatedAt: now.Add(-3 * 24 * time.Hour),
		},
	}
	s.generalMessages = []models.Message{
		msg(models.RoleAssistant, GeneralWelcome, 0, false),
	}
	s.revision++
}
