/*
Package test provides test harness helpers, such as an in-process DNS server
answering with canned responses, and idle Docker containers on dedicated test
networks.
*/
package test
