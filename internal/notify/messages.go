package notify

import "fmt"

func CompetitionCreated(title, competitionType string) string {
	return fmt.Sprintf("New competition published: %s (%s)", title, competitionType)
}

func SubmissionReceived(competitionTitle, participant string) string {
	return fmt.Sprintf("Submission received for %s from %s", competitionTitle, participant)
}

func ResultGraded(competitionTitle, participant string, score, maxScore int) string {
	return fmt.Sprintf("%s graded for %s: %d/%d", competitionTitle, participant, score, maxScore)
}

func CandidateCreated(name, source string) string {
	return fmt.Sprintf("New candidate %s created from %s", name, source)
}

func DisciplinaryAction(agentName, actionType string) string {
	return fmt.Sprintf("Disciplinary action (%s) recorded for %s", actionType, agentName)
}

func CompetitionsClosed(titles []string) string {
	return fmt.Sprintf("%d competition(s) closed after their end date: %v", len(titles), titles)
}

func PendingApplications(count int) string {
	return fmt.Sprintf("%d application(s) waiting for review", count)
}
