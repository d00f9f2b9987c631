package team

import "fmt"

// Team is a real football club inside a league.
type Team struct {
	ID      int64
	League  string
	Name    string
	LogoURL string
}

func (t Team) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
