package api

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
// Each corresponds to an error title the service puts in its response envelope.
var (
	ErrScoreNotFound         = errors.New("score not found")
	ErrChartNotTracked       = errors.New("chart not tracked")
	ErrUserNotFound          = errors.New("user not found")
	ErrChartAlreadyFavorited = errors.New("chart already favorited")
	ErrDatabase              = errors.New("database error")
	ErrGoalAlreadyExists     = errors.New("goal already exists")
	ErrChartAlreadyAdded     = errors.New("chart already added")
	ErrInvalidXML            = errors.New("malformed xml file")
	ErrNoUsersFound          = errors.New("no users found")
)

// mapErrorTitle translates an envelope error title to its sentinel. Nil
// means the title is not in the table.
func mapErrorTitle(title string) error {
	switch title {
	case "Score not found":
		return ErrScoreNotFound
	case "Chart not tracked":
		return ErrChartNotTracked
	case "User not found":
		return ErrUserNotFound
	case "Favorite already exists":
		return ErrChartAlreadyFavorited
	case "Database error":
		return ErrDatabase
	case "Goal already exist":
		return ErrGoalAlreadyExists
	case "Chart already exists":
		return ErrChartAlreadyAdded
	case "Malformed XML file":
		return ErrInvalidXML
	case "No users found":
		return ErrNoUsersFound
	}
	return nil
}
