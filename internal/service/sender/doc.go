// Package sender manages the rotating sender accounts campaigns submit
// mail through: registration with credential validation, removal, health
// probing, and resolution of a campaign's selected addresses to concrete
// accounts in rotation order.
//
// Repository implementations live in repository/postgres/.
package sender
