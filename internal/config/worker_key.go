package config

type WorkerKeyStruct struct {
	PersistTimeQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistTimeQueue: "persist_time_queue",
}
