/*
Bus implements the event-passing fabric between engines.

# Module
  - queue: bounded SPSC queue with blocking push and non-blocking pop
  - fanout: single-producer broadcast built from replicated SPSC queues,
    consumer count fixed at wiring time

# Source
  - market data from market data engines
  - configuration from the control engine
  - indicator values from the indicator engine

# Produce
  - none; pure transport

# Sharded
  - one fanout per producing engine output type
*/
package bus
