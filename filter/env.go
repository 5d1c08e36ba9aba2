package filter

/*
Here the Env used in the message admission filters is defined.
Once this struct is fixed, it should not be changed, otherwise filter
expressions in existing configurations may not compile any more
(f.e. if properties are renamed etc.)
*/

type Env struct {
	ConversationId string
	Text           string
	Type           string
	UserId         string // identity bound to the sending connection, may be empty
	Label          string // generated connection label
}
