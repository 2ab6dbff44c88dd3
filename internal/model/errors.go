package model

import "errors"

// Domain errors shared by the stores and services.
var (
	// ErrTestNotFound is returned when no test matches the given identifier.
	ErrTestNotFound = errors.New("test not found")
	// ErrScoreNotFound is returned when a student has no record for a test.
	ErrScoreNotFound = errors.New("score record not found")
	// ErrNotTestOwner is returned on a teacher/test ownership mismatch.
	ErrNotTestOwner = errors.New("not the owner of this test")
	// ErrTestAlreadyLive is returned when starting a test that is already live.
	ErrTestAlreadyLive = errors.New("test is already live")
	// ErrTestNotLive is returned when advancing or answering a test that is not live.
	ErrTestNotLive = errors.New("test is not live")
	// ErrTestIsLive is returned when editing or deleting a test mid-game.
	ErrTestIsLive = errors.New("test is live")
	// ErrNoQuestions is returned when hosting a test with an empty question list.
	ErrNoQuestions = errors.New("test has no questions")
	// ErrStaleCursor is returned when an advance carries an outdated cursor index.
	ErrStaleCursor = errors.New("cursor has moved since the request was issued")
	// ErrStaleAnswer is returned when an answer arrives for a question that is
	// no longer current.
	ErrStaleAnswer = errors.New("answer is for a question that is no longer current")
	// ErrAlreadyAnswered is returned when a student double-submits for the
	// current question.
	ErrAlreadyAnswered = errors.New("current question already answered")
)
