package config

type WorkerKeyStruct struct {
	PersistSessionLogsQueue   string
	PersistReviewUpdatesQueue string
	PersistTopicOutcomesQueue string
	BadgeTriggersQueue        string
}

var WorkerKey = &WorkerKeyStruct{
	PersistSessionLogsQueue:   "persist_session_logs_queue",
	PersistReviewUpdatesQueue: "persist_review_updates_queue",
	PersistTopicOutcomesQueue: "persist_topic_outcomes_queue",
	BadgeTriggersQueue:        "badge_triggers_queue",
}
