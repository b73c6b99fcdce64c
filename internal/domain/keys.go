package domain

// KeyPrefix namespaces every key and index this service owns in the shared store.
const KeyPrefix = "footrag:"
