/*
Package mobynet looks up Docker containers in order to scan from inside their
network namespaces, as well as to find the addresses of the other containers
on the networks attached to a particular container.
*/
package mobynet
