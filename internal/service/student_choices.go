package service

import (
	"context"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

type studentChoiceLister interface {
	ListChoicesByGrade(ctx context.Context, gradeID int64) ([]models.StudentChoice, error)
}

// StudentChoiceSet is the set of students a lending or fee form may select.
type StudentChoiceSet struct {
	GradeID  *int64                 `json:"grade_id"`
	Students []models.StudentChoice `json:"students"`
}

// Contains reports whether the student is selectable.
func (s StudentChoiceSet) Contains(studentID int64) bool {
	for _, st := range s.Students {
		if st.ID == studentID {
			return true
		}
	}
	return false
}

// ResolveStudentChoices restricts the student selector by grade:
//  1. a grade in the payload selects that grade's students, and a malformed grade selects nobody;
//  2. otherwise an existing record's grade is used;
//  3. otherwise the set is empty.
func ResolveStudentChoices(ctx context.Context, lister studentChoiceLister, submitted models.FormRef, existingGradeID *int64) (StudentChoiceSet, error) {
	empty := StudentChoiceSet{Students: []models.StudentChoice{}}
	var gradeID int64
	switch {
	case submitted.Present():
		id, ok := submitted.ID()
		if !ok {
			return empty, nil
		}
		gradeID = id
	case existingGradeID != nil:
		gradeID = *existingGradeID
	default:
		return empty, nil
	}
	students, err := lister.ListChoicesByGrade(ctx, gradeID)
	if err != nil {
		return empty, internalError(err, "failed to load students for grade")
	}
	if students == nil {
		students = []models.StudentChoice{}
	}
	return StudentChoiceSet{GradeID: &gradeID, Students: students}, nil
}
