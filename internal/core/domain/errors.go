package domain

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrTransactionFailed  = errors.New("store transaction failed")
)
