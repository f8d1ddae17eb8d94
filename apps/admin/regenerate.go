package main

import (
	"context"
)

// regenerate re-runs the generation call for a failed lesson.Lesson
func (cli *commandLine) regenerate(id int) error {
	les, err := cli.svc.Regenerate(context.Background(), id)
	if err != nil {
		return err
	}
	logger.Printf("lesson %d regenerated (status: %s)", les.ID, les.Status)
	return nil
}
