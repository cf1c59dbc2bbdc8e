package domain

// ChatUser is the identity of the person asking for a betting link.
type ChatUser struct {
	ID            string
	Username      string
	Discriminator string
	Avatar        string
}

// Guild is the server an interaction happened in. Both fields may be empty
// for direct messages.
type Guild struct {
	ID   string
	Name string
}

// Channel is the channel an interaction happened in.
type Channel struct {
	ID   string
	Name string
}

// SessionRequest is everything the session service needs to mint a betting
// link for one market.
type SessionRequest struct {
	User     ChatUser
	Guild    Guild
	Channel  Channel
	MarketID string
	Question string
	Title    string
}
