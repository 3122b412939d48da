package service

func formatValidationErrors(err error) string {
	return err.Error()
}
